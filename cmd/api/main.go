package main

import (
	"go.uber.org/fx"

	"github.com/petalworks/bloom/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
