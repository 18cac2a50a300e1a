package main

import "github.com/losthumanity/TikDownloader/cmd"

func main() {
	cmd.Execute()
}
