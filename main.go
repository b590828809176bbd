/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/watchdesk/console/cmd"

func main() {
	cmd.Execute()
}
