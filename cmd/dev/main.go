// Command dev runs every service in one process: orders on PORT, users on
// PORT+1 and payments on PORT+2, sharing a single database client.
package main

import "storefront/internal/app"

func main() {
	app.Main(app.Orders(), app.Users(), app.Payments())
}
