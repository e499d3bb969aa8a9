package app

import (
	"go.uber.org/fx"

	"github.com/petalworks/bloom/internal/cache"
	"github.com/petalworks/bloom/internal/config"
	"github.com/petalworks/bloom/internal/database"
	"github.com/petalworks/bloom/internal/logger"
	"github.com/petalworks/bloom/internal/messaging"
	"github.com/petalworks/bloom/internal/notify"
	"github.com/petalworks/bloom/internal/observability"
	repositorycatalog "github.com/petalworks/bloom/internal/repository/catalog"
	repositoryorder "github.com/petalworks/bloom/internal/repository/order"
	repositorypayment "github.com/petalworks/bloom/internal/repository/payment"
	httpserver "github.com/petalworks/bloom/internal/server/http"
	servicecatalog "github.com/petalworks/bloom/internal/service/catalog"
	serviceorder "github.com/petalworks/bloom/internal/service/order"
	servicepayment "github.com/petalworks/bloom/internal/service/payment"
	transporthttp "github.com/petalworks/bloom/internal/transport/http"
	"github.com/petalworks/bloom/internal/txn"
	"github.com/petalworks/bloom/internal/worker"
	workerorder "github.com/petalworks/bloom/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	notify.Module,
	observability.Module,
	txn.Module,
	repositorycatalog.Module,
	repositoryorder.Module,
	repositorypayment.Module,
	servicecatalog.Module,
	serviceorder.Module,
	servicepayment.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
