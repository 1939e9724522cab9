package main

import "github.com/MeKo-Tech/stylizer/internal/cmd"

func main() {
	cmd.Execute()
}
