// cmd/main.go
package main

import (
	"go-access-gate/app"
)

// @title           Access Gate API
// @version         1.0
// @description     Issues expiring private links and gates a static page behind them.

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:3000
// @BasePath  /
func main() {
	app.Run()
}
