package main

import (
	_ "git.handmade.network/hmn/tablelog/src/admintools"
	"git.handmade.network/hmn/tablelog/src/website"
)

func main() {
	website.WebsiteCommand.Execute()
}
