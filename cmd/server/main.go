// Command server runs the shopfront API.
package main

import "shopfront.dev/pkg/shopfront"

func main() {
	shopfront.New().Run()
}
