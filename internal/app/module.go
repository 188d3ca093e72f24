package app

import (
	"time"

	"github.com/Sid-web6306/gym-saas-billing/internal/app/api/server"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/archiver"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/deliverylog"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/reconciler"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/service/webhook"
	"github.com/Sid-web6306/gym-saas-billing/internal/app/storage"
	"github.com/Sid-web6306/gym-saas-billing/internal/platform/billingapi"
	"github.com/Sid-web6306/gym-saas-billing/internal/platform/db"
	"github.com/Sid-web6306/gym-saas-billing/pkg/config"
	"github.com/Sid-web6306/gym-saas-billing/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	storage.Module,
	billingapi.Module,
	deliverylog.Module,
	reconciler.Module,
	archiver.Module,
	webhook.Module,
)
