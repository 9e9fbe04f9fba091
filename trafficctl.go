// Fuzzy traffic signal controller

package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/fuzzy-signal/base/zaplog"

	"example.com/fuzzy-signal/benchmark"

	"example.com/fuzzy-signal/core/client"
	"example.com/fuzzy-signal/core/config"
	"example.com/fuzzy-signal/core/fuzzy"
	"example.com/fuzzy-signal/core/server"
	"example.com/fuzzy-signal/core/traffic"
)

const (
	benchmarkModeLocal = "local"
	benchmarkModeIP    = "ip"

	defaultMetricsAddr = "127.0.0.1:8080"
	toolTimeout        = 5 * time.Second
)

var (
	log *zap.Logger
)

func initLogger(verbose bool) {
	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true
	c.EncoderConfig.EncodeCaller = func(
		caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		p := caller.TrimmedPath()
		if len(p) > 30 {
			p = "..." + p[len(p)-27:]
		}
		enc.AppendString(fmt.Sprintf("%30s", p))
	}
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var err error
	log, err = c.Build()
	if err != nil {
		panic(err)
	}
	zaplog.SetLogger(log)
}

func runMonitor(log *zap.Logger, addr string) {
	if addr == "" {
		addr = defaultMetricsAddr
	}
	http.Handle("/metrics", promhttp.Handler())
	err := http.ListenAndServe(addr, nil)
	log.Fatal("failed to serve metrics", zap.Error(err))
}

func loadConfig(configFile string) config.Config {
	if configFile == "" {
		return config.Default()
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal("failed to load configuration", zap.String("file", configFile), zap.Error(err))
	}
	return cfg
}

func newController(cfg config.Config) *traffic.Controller {
	cs, err := config.NewControlSystem(cfg, log)
	if err != nil {
		log.Fatal("failed to build control system", zap.Error(err))
	}
	c, err := traffic.NewController(cs, log)
	if err != nil {
		log.Fatal("failed to create controller", zap.Error(err))
	}
	return c
}

func writeDecision(w io.Writer, d traffic.Decision) {
	fmt.Fprintf(w, "%s\t%.4f\n", traffic.GreenLightDuration, d.GreenLight)
	fmt.Fprintf(w, "%s\t%.4f\n", traffic.PriorityLevel, d.Priority)
}

func writeCurves(w io.Writer, c fuzzy.Curves) {
	var b strings.Builder
	b.WriteString(c.Variable)
	for _, t := range c.Terms {
		b.WriteByte('\t')
		b.WriteString(t.Term)
	}
	fmt.Fprintln(w, b.String())
	for i, x := range c.Grid {
		b.Reset()
		fmt.Fprintf(&b, "%g", x)
		for _, t := range c.Terms {
			fmt.Fprintf(&b, "\t%g", t.Degrees[i])
		}
		fmt.Fprintln(w, b.String())
	}
}

func runEval(configFile string, in traffic.Inputs) {
	c := newController(loadConfig(configFile))
	d, err := c.Decide(in)
	if err != nil {
		log.Fatal("failed to compute decision", zap.Object("inputs", in), zap.Error(err))
	}
	writeDecision(os.Stdout, d)
}

func runCurves(configFile, name string) {
	cs, err := config.NewControlSystem(loadConfig(configFile), log)
	if err != nil {
		log.Fatal("failed to build control system", zap.Error(err))
	}
	curves, err := cs.Curves(name)
	if err != nil {
		log.Fatal("failed to sample curves", zap.String("variable", name), zap.Error(err))
	}
	writeCurves(os.Stdout, curves)
}

func runRules(configFile string) {
	cs, err := config.NewControlSystem(loadConfig(configFile), log)
	if err != nil {
		log.Fatal("failed to build control system", zap.Error(err))
	}
	fmt.Print(cs.RuleListing())
}

func runServer(configFile string) {
	ctx := context.Background()

	cfg := loadConfig(configFile)
	c := newController(cfg)

	if cfg.Service.LocalAddr == "" {
		log.Fatal("local_address not specified in config")
	}
	localAddr, err := net.ResolveUDPAddr("udp", cfg.Service.LocalAddr)
	if err != nil {
		log.Fatal("failed to parse local address", zap.Error(err))
	}
	_, err = server.StartIPServer(ctx, log, localAddr,
		cfg.Service.NumWorkers(), cfg.Service.TrafficClass(), c)
	if err != nil {
		log.Fatal("failed to start IP server", zap.Error(err))
	}

	if cfg.Service.QUICAddr != "" {
		if cfg.Service.TLSCertFile == "" {
			log.Fatal("missing TLS parameters in configuration for QUIC server")
		}
		quicAddr, err := net.ResolveUDPAddr("udp", cfg.Service.QUICAddr)
		if err != nil {
			log.Fatal("failed to parse QUIC address", zap.Error(err))
		}
		tlsConfig, err := server.NewTLSConfig(cfg.Service.TLSCertFile, cfg.Service.TLSKeyFile)
		if err != nil {
			log.Fatal("failed to load TLS certificate", zap.Error(err))
		}
		_, err = server.StartQUICServer(ctx, log, quicAddr, tlsConfig, c)
		if err != nil {
			log.Fatal("failed to start QUIC server", zap.Error(err))
		}
	}

	runMonitor(log, cfg.Service.MetricsAddr)
}

func runTool(localAddr, remoteAddr string, quicMode, insecureSkipVerify bool, in traffic.Inputs) {
	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	var d traffic.Decision
	var err error
	if quicMode {
		host, _, splitErr := net.SplitHostPort(remoteAddr)
		if splitErr != nil {
			log.Fatal("failed to split remote host and port", zap.Error(splitErr))
		}
		d, err = client.EvaluateQUIC(ctx, log, remoteAddr, &tls.Config{
			InsecureSkipVerify: insecureSkipVerify,
			ServerName:         host,
			MinVersion:         tls.VersionTLS13,
		}, in)
		if err != nil {
			log.Fatal("failed to evaluate", zap.String("to", remoteAddr), zap.Error(err))
		}
	} else {
		laddr, raddr := resolveUDPAddrs(localAddr, remoteAddr)
		d, err = client.EvaluateIP(ctx, log, laddr, raddr, in)
		if err != nil {
			log.Fatal("failed to evaluate", zap.Stringer("to", raddr), zap.Error(err))
		}
	}
	writeDecision(os.Stdout, d)
}

func runBenchmark(configFile, mode, localAddr, remoteAddr string, n, workers int) {
	var res benchmark.Result
	switch mode {
	case benchmarkModeLocal:
		c := newController(loadConfig(configFile))
		res = benchmark.RunLocal(log, c, n, workers)
	case benchmarkModeIP:
		laddr, raddr := resolveUDPAddrs(localAddr, remoteAddr)
		res = benchmark.RunIP(log, laddr, raddr, n, workers)
	default:
		exitWithUsage()
	}
	res.Print(os.Stdout)
}

func resolveUDPAddrs(localAddr, remoteAddr string) (laddr, raddr *net.UDPAddr) {
	var err error
	laddr = &net.UDPAddr{}
	if localAddr != "" {
		laddr, err = net.ResolveUDPAddr("udp", localAddr)
		if err != nil {
			log.Fatal("failed to parse local address", zap.Error(err))
		}
	}
	raddr, err = net.ResolveUDPAddr("udp", remoteAddr)
	if err != nil {
		log.Fatal("failed to parse remote address", zap.Error(err))
	}
	return laddr, raddr
}

func inputFlags(fs *flag.FlagSet, in *traffic.Inputs) {
	fs.Float64Var(&in.TrafficDensity, "traffic", 0, "Traffic density [0, 100]")
	fs.Float64Var(&in.PedestrianCount, "pedestrians", 0, "Pedestrian count [0, 100]")
	fs.Float64Var(&in.WeatherCondition, "weather", 0, "Weather condition [0, 100]")
	fs.Float64Var(&in.TimeOfDay, "time", 0, "Time of day [0, 24]")
	fs.Float64Var(&in.Emergency, "emergency", 0, "Emergency [0, 1]")
}

func exitWithUsage() {
	fmt.Println("usage: trafficctl eval|curves|rules|server|tool|benchmark [flags]")
	os.Exit(1)
}

func main() {
	var (
		verbose            bool
		configFile         string
		variable           string
		localAddr          string
		remoteAddr         string
		quicMode           bool
		insecureSkipVerify bool
		benchmarkMode      string
		numRequests        int
		numWorkers         int
		in                 traffic.Inputs
	)

	evalFlags := flag.NewFlagSet("eval", flag.ExitOnError)
	curvesFlags := flag.NewFlagSet("curves", flag.ExitOnError)
	rulesFlags := flag.NewFlagSet("rules", flag.ExitOnError)
	serverFlags := flag.NewFlagSet("server", flag.ExitOnError)
	toolFlags := flag.NewFlagSet("tool", flag.ExitOnError)
	benchmarkFlags := flag.NewFlagSet("benchmark", flag.ExitOnError)

	evalFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	evalFlags.StringVar(&configFile, "config", "", "Config file")
	inputFlags(evalFlags, &in)

	curvesFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	curvesFlags.StringVar(&configFile, "config", "", "Config file")
	curvesFlags.StringVar(&variable, "var", "", "Variable name")

	rulesFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	rulesFlags.StringVar(&configFile, "config", "", "Config file")

	serverFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	serverFlags.StringVar(&configFile, "config", "", "Config file")

	toolFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	toolFlags.StringVar(&localAddr, "local", "", "Local address")
	toolFlags.StringVar(&remoteAddr, "remote", "", "Remote address")
	toolFlags.BoolVar(&quicMode, "quic", false, "Use QUIC")
	toolFlags.BoolVar(&insecureSkipVerify, "insecure-skip-verify", false, "Skip TLS verification")
	inputFlags(toolFlags, &in)

	benchmarkFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	benchmarkFlags.StringVar(&configFile, "config", "", "Config file")
	benchmarkFlags.StringVar(&benchmarkMode, "mode", benchmarkModeLocal, "Mode (local or ip)")
	benchmarkFlags.StringVar(&localAddr, "local", "", "Local address")
	benchmarkFlags.StringVar(&remoteAddr, "remote", "", "Remote address")
	benchmarkFlags.IntVar(&numRequests, "n", 100000, "Number of requests")
	benchmarkFlags.IntVar(&numWorkers, "workers", 1, "Number of concurrent workers")

	if len(os.Args) < 2 {
		exitWithUsage()
	}

	switch os.Args[1] {
	case evalFlags.Name():
		err := evalFlags.Parse(os.Args[2:])
		if err != nil || evalFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		runEval(configFile, in)
	case curvesFlags.Name():
		err := curvesFlags.Parse(os.Args[2:])
		if err != nil || curvesFlags.NArg() != 0 {
			exitWithUsage()
		}
		if variable == "" {
			exitWithUsage()
		}
		initLogger(verbose)
		runCurves(configFile, variable)
	case rulesFlags.Name():
		err := rulesFlags.Parse(os.Args[2:])
		if err != nil || rulesFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		runRules(configFile)
	case serverFlags.Name():
		err := serverFlags.Parse(os.Args[2:])
		if err != nil || serverFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		runServer(configFile)
	case toolFlags.Name():
		err := toolFlags.Parse(os.Args[2:])
		if err != nil || toolFlags.NArg() != 0 {
			exitWithUsage()
		}
		if remoteAddr == "" || (quicMode && localAddr != "") {
			exitWithUsage()
		}
		initLogger(verbose)
		runTool(localAddr, remoteAddr, quicMode, insecureSkipVerify, in)
	case benchmarkFlags.Name():
		err := benchmarkFlags.Parse(os.Args[2:])
		if err != nil || benchmarkFlags.NArg() != 0 {
			exitWithUsage()
		}
		if numRequests <= 0 || numWorkers <= 0 ||
			(benchmarkMode == benchmarkModeIP) == (remoteAddr == "") {
			exitWithUsage()
		}
		initLogger(verbose)
		runBenchmark(configFile, benchmarkMode, localAddr, remoteAddr, numRequests, numWorkers)
	default:
		exitWithUsage()
	}
}
