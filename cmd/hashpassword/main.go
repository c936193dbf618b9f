// cmd/hashpassword/main.go
//
// Prints a bcrypt hash suitable for admin.password_hash.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go-access-gate/service"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	password := ""
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "usage: hashpassword <password>  (or pipe it on stdin)")
			os.Exit(2)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := service.HashPassword(password, bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash failed:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
