package main

import "github.com/nijaru/yt-channel-text/cmd"

func main() {
	cmd.Execute()
}
