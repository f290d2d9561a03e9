package main

import "storefront/internal/app"

func main() {
	app.Main(app.Users())
}
