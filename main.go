package main

import "github.com/alekitto/btree/dbcli"

func main() {
	dbcli.Execute()
}
