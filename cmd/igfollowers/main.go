package main

import "os"

func main() {
	rootCmd.SetArgs(defaultToCollect(os.Args[1:]))
	Execute()
}
