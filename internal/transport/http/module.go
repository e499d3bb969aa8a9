package http

import (
	"go.uber.org/fx"

	catalogtransport "github.com/petalworks/bloom/internal/transport/http/catalog"
	ordertransport "github.com/petalworks/bloom/internal/transport/http/order"
	paymenttransport "github.com/petalworks/bloom/internal/transport/http/payment"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	catalogtransport.Module,
	paymenttransport.Module,
)
