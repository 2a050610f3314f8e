package main

import "github.com/campuslink/auth-service/cmd"

func main() {
	cmd.Execute()
}
