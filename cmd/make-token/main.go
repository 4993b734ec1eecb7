// make-token prints a signed bearer token for exercising the admin endpoints
// locally. Pass -role admin together with the user and contact ids the token
// should carry.
//
// Usage (from backend directory):
//
//	API_SECRET=... TOKEN_HOUR_LIFESPAN=24 go run ./cmd/make-token -user 1 -contact 42 -role admin
package main

import (
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/contactsync_backend/utils"
)

func main() {
	userId := flag.Int("user", 0, "user account id to embed in the token")
	contactId := flag.Int("contact", 0, "CRM contact id to embed in the token")
	role := flag.String("role", "user", "role claim, admin or user")
	flag.Parse()

	if *userId == 0 {
		fmt.Fprintln(os.Stderr, "make-token: -user is required")
		flag.Usage()
		os.Exit(2)
	}

	token, err := utils.JwtGenerate(*userId, *contactId, *role)
	if err != nil {
		fmt.Fprintln(os.Stderr, "make-token: could not sign token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
