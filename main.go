package main

import "github.com/mackenziebowes/CanadaSpends/cmd"

func main() {
	cmd.Execute()
}
