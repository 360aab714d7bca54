package main

import "github.com/ridoystarlord/easymodel/cmd"

func main() {
	cmd.Execute()
}
