package main

import "github.com/aubrey-sherman/baby-bootcamp/cmd/bootcamp"

func main() {
	bootcamp.Execute()
}
