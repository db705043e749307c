package main

import "github.com/mssqlscript/mssqlscript/cmd"

func main() {
	cmd.Execute()
}
