// Command counterbridge is the Counter Bridge process: it attaches to
// the shared-memory request/response/market-data queues, drains orders
// against one or more broker plugins, and exposes a small HTTP admin
// surface alongside them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"jotacomputing/counterbridge/internal/audit"
	"jotacomputing/counterbridge/internal/bridge"
	"jotacomputing/counterbridge/internal/broker"
	"jotacomputing/counterbridge/internal/broker/ctp"
	"jotacomputing/counterbridge/internal/broker/simulator"
	"jotacomputing/counterbridge/internal/config"
	"jotacomputing/counterbridge/internal/httpapi"
	"jotacomputing/counterbridge/internal/ledger"
	"jotacomputing/counterbridge/internal/mdfanout"
	"jotacomputing/counterbridge/internal/ops"
	"jotacomputing/counterbridge/internal/shm"
	"jotacomputing/counterbridge/internal/wire"
)

// brokerSpec is one parsed `<name>:<config_path>` CLI argument. name also
// selects which plugin package to construct: "simulator" or "ctp".
type brokerSpec struct {
	name       string
	configPath string
}

func parseBrokerSpec(arg string) (brokerSpec, error) {
	i := strings.IndexByte(arg, ':')
	if i < 0 {
		return brokerSpec{}, fmt.Errorf("broker spec %q must be of the form <name>:<config_path>", arg)
	}
	return brokerSpec{name: arg[:i], configPath: arg[i+1:]}, nil
}

func newPlugin(name string) (broker.Plugin, error) {
	switch name {
	case "simulator":
		return simulator.New(), nil
	case "ctp":
		return ctp.New(), nil
	default:
		return nil, fmt.Errorf("unknown broker type %q", name)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "/etc/counterbridge.yaml", "path to the bridge YAML config")
	positionFile := flag.String("position-file", "", "override the configured warm-start position snapshot path")
	flag.Parse()
	specs := flag.Args()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Error("counterbridge: config load failed")
		return 1
	}
	if *positionFile != "" {
		cfg.System.PositionFile = *positionFile
	}

	level, err := logger.ParseLevel(cfg.System.LogLevel)
	if err != nil {
		level = logger.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logger.JSONFormatter{})

	if err := wire.VerifyLayout(); err != nil {
		logger.WithError(err).Error("counterbridge: wire layout verification failed")
		return 1
	}

	backend := shm.BackendSysV
	if cfg.Shm.Backend == "mmap" {
		backend = shm.BackendMmap
	}
	keyFor := func(sysvKey int, name string) shm.Key {
		if backend == shm.BackendMmap {
			return shm.Key{Path: cfg.Shm.MmapDir + "/" + name}
		}
		return shm.Key{SysVKey: sysvKey}
	}

	requests, err := shm.CreateQueue[wire.RequestMsg](backend, keyFor(cfg.Shm.RequestKey, "request"), cfg.Shm.RequestCapacity)
	if err != nil {
		logger.WithError(err).Error("counterbridge: request queue attach failed")
		return 1
	}
	responses, err := shm.CreateQueue[wire.ResponseMsg](backend, keyFor(cfg.Shm.ResponseKey, "response"), cfg.Shm.ResponseCapacity)
	if err != nil {
		logger.WithError(err).Error("counterbridge: response queue attach failed")
		return 1
	}
	marketData, err := shm.CreateQueue[wire.MarketUpdateNew](backend, keyFor(cfg.Shm.MarketDataKey, "marketdata"), cfg.Shm.MarketDataCapacity)
	if err != nil {
		logger.WithError(err).Error("counterbridge: market data queue attach failed")
		return 1
	}

	lg := ledger.New()
	if cfg.System.PositionFile != "" {
		if err := lg.LoadSnapshot(cfg.System.PositionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WithError(err).Warn("counterbridge: position snapshot load failed, starting flat")
		}
	}

	var auditLog *audit.Log
	if cfg.System.AuditDBPath != "" {
		auditLog, err = audit.Open(cfg.System.AuditDBPath)
		if err != nil {
			logger.WithError(err).Warn("counterbridge: audit log unavailable, continuing without it")
		} else {
			defer auditLog.Close()
		}
	}

	opsSink := &ops.Sink{}
	if cfg.System.OpsNATSUrl != "" {
		if hb, err := ops.NewHeartbeat(cfg.System.OpsNATSUrl, "counterbridge.heartbeat"); err != nil {
			logger.WithError(err).Warn("counterbridge: heartbeat publisher unavailable")
		} else {
			opsSink.Heartbeat = hb
			defer hb.Close()
		}
	}
	if cfg.System.OpsAMQPUrl != "" {
		if al, err := ops.NewAlerts(cfg.System.OpsAMQPUrl, "counterbridge.alerts"); err != nil {
			logger.WithError(err).Warn("counterbridge: alert publisher unavailable")
		} else {
			opsSink.Alerts = al
			defer al.Close()
		}
	}

	b := bridge.New(requests, responses, lg, cfg.Routing.SymbolBroker)
	if auditLog != nil {
		b.SetAuditSink(auditLog)
	}
	b.SetOpsSink(opsSink)

	loggedIn := 0
	for _, arg := range specs {
		spec, err := parseBrokerSpec(arg)
		if err != nil {
			logger.WithError(err).Error("counterbridge: bad broker spec")
			continue
		}
		p, err := newPlugin(spec.name)
		if err != nil {
			logger.WithError(err).WithField("spec", arg).Error("counterbridge: broker init failed")
			continue
		}
		if err := p.Initialize(spec.configPath); err != nil {
			logger.WithError(err).WithField("broker", spec.name).Error("counterbridge: broker initialize failed")
			continue
		}
		if err := p.Login(); err != nil {
			logger.WithError(err).WithField("broker", spec.name).Error("counterbridge: broker login failed")
			if opsSink.Alerts != nil {
				opsSink.Alerts.ReconnectBackoff(spec.name, 1, time.Second)
			}
			continue
		}
		b.RegisterBroker(spec.name, p)
		loggedIn++
		logger.WithField("broker", spec.name).Info("counterbridge: broker logged in")
	}

	if len(specs) > 0 && loggedIn == 0 {
		logger.Error("counterbridge: every configured broker failed to initialize")
		return 2
	}

	mdServer := mdfanout.NewGRPCServer()
	mdfanout.Register(mdServer, mdfanout.NewServer(marketData))
	if cfg.System.MDFanoutGRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.System.MDFanoutGRPCAddr)
		if err != nil {
			logger.WithError(err).Warn("counterbridge: market data fan-out listener failed, continuing without it")
		} else {
			go func() {
				if err := mdServer.Serve(lis); err != nil {
					logger.WithError(err).Warn("counterbridge: market data fan-out server stopped")
				}
			}()
		}
	}

	httpSrv := httpapi.New(b, lg, "counterbridge-admin", "changeme")
	go func() {
		addr := fmt.Sprintf(":%d", cfg.System.HTTPPort)
		if err := httpSrv.Echo.Start(addr); err != nil {
			logger.WithError(err).Info("counterbridge: http server stopped")
		}
	}()

	go b.Run()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("counterbridge: shutting down")
	b.Stop()
	_ = httpSrv.Echo.Shutdown(context.Background())
	if cfg.System.PositionFile != "" {
		if err := lg.SaveSnapshot(cfg.System.PositionFile); err != nil {
			logger.WithError(err).Warn("counterbridge: position snapshot save failed")
		}
	}

	return 0
}
