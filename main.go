package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"syscall"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/junctionlab/signalcore/adapter"
	"github.com/junctionlab/signalcore/config"
	"github.com/junctionlab/signalcore/control"
	"github.com/junctionlab/signalcore/controlloop"
	"github.com/junctionlab/signalcore/persistence"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 无外部仿真器可用时，使用内存模拟适配器
	mock = flag.String("mock", "", "run against the in-memory mock adapter instead of a live simulator (any non-empty value enables it)")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "signalcore")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})

	var c config.Config
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	}
	if len(file) > 0 {
		if err := yaml.UnmarshalStrict(file, &c); err != nil {
			log.Panicf("config file load err: %v", err)
		}
	}

	level := *logLevel
	if c.LogLevel != "" {
		level = c.LogLevel
	}
	if lv, ok := logLevels[level]; ok {
		logrus.SetLevel(lv)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	log.Infof("%+v", c)

	rc := config.NewRuntimeConfig(c)

	var ad adapter.Adapter
	if *mock != "" || c.Simulator.Address == "" || c.Simulator.Address == "mock" {
		log.Info("using in-memory mock adapter")
		ad = adapter.NewMockAdapter(1)
	} else {
		ad = adapter.NewTCPAdapter(c.Simulator.Address)
	}

	evlog, err := persistence.NewEventLog(c.EventLogDir)
	if err != nil {
		log.Panicf("event log init err: %v", err)
	}
	defer evlog.Close()

	expStore := persistence.NewExperienceStore(c.Experience)
	ctx := context.Background()
	if err := expStore.Connect(ctx); err != nil {
		log.Panicf("experience store connect err: %v", err)
	}
	defer expStore.Close(ctx)

	loopCtx := controlloop.NewContext(ad, rc.T, expStore, evlog)
	if err := expStore.Load(ctx, loopCtx.Memory); err != nil {
		log.Warnf("experience store load err: %v", err)
	}

	loop := controlloop.NewLoop(loopCtx)
	loop.Start()

	runCtx, cancel := context.WithCancel(ctx)
	go loop.Run(runCtx)

	server := control.NewServer(loop)
	go func() {
		if err := server.ListenAndServe(rc.All.Control.ListenAddr); err != nil {
			log.Errorf("control server stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()
	if err := expStore.Save(ctx, loopCtx.Memory); err != nil {
		log.Errorf("experience store save err: %v", err)
	}
}
