package main

import "chatbotrag/cmd"

func main() {
	cmd.Execute()
}
