/*
Copyright © 2025 svmnotn
*/
package main

import "github.com/svmnotn/native-serial/cmd"

func main() {
	cmd.Execute()
}
