// Command petsim runs the Etherpets farm: pets roam, pair up, talk and show
// how they feel about it.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
