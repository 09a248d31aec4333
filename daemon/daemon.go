package daemon

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

const (
	envPrefix = "BEY_"

	optLogLevel = "LOG_LEVEL"

	optHttpBindAddress  = "HTTP_BIND_ADDRESS"
	optHttpReadTimeout  = "HTTP_READ_TIMEOUT"
	optHttpWriteTimeout = "HTTP_WRITE_TIMEOUT"
)

var (
	version = "unknown-version"
)

func newConf() *conf {
	env := env{}
	for _, value := range os.Environ() {
		env.Set(value)
	}

	conf := conf{
		envFile:  envFile{env},
		opts:     make(map[string]*confOpt),
		logLevel: zerolog.InfoLevel,
	}

	conf.addOption(
		optLogLevel,
		"minimum level of log messages: trace, debug, info, warn, error or disabled",
		func() string {
			return conf.logLevel.String()
		},
		func(value string) error {
			logLevel, err := zerolog.ParseLevel(value)
			conf.logLevel = logLevel
			return err
		},
	)

	return &conf
}

// logOutput is the destination of daemon log lines.
var logOutput io.Writer = os.Stderr

// newLogger creates the logger of a daemon, which writes JSON lines.
func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(logOutput).With().Timestamp().Logger().Level(level)
}

func listConf(conf *conf) int {
	log.SetFlags(0)
	for _, opt := range conf.sortedOpts() {
		log.Printf("%s=%s", opt.key, opt.value())
	}

	return 0
}

func listConfErrors(conf *conf) int {
	var opts []*confOpt

	for _, opt := range conf.sortedOpts() {
		if opt.err != nil {
			opts = append(opts, opt)
		}
	}

	if len(opts) == 0 {
		return 0
	}

	log.SetFlags(0)
	for _, opt := range opts {
		value := opt.value()
		if value == "" {
			log.Printf("%s: %v", opt.key, opt.err)
		} else {
			log.Printf("%s=%s: %v", opt.key, value, opt.err)
		}
	}

	return 1
}

func listConfOpts(conf *conf) int {
	opts := conf.sortedOpts()

	maxKeyLength := 0
	for _, opt := range opts {
		keyLength := len(opt.key)
		if opt.required {
			keyLength++
		}

		if keyLength > maxKeyLength {
			maxKeyLength = keyLength
		}
	}

	var sb strings.Builder
	for _, opt := range opts {
		sb.WriteString(opt.key)

		l := len(opt.key)
		if opt.required {
			sb.WriteRune('*')
			l++
		}

		sb.WriteString(strings.Repeat(" ", maxKeyLength-l))
		sb.WriteString("   ")
		sb.WriteString(opt.description)

		if opt.defaultValue != "" {
			sb.WriteString(fmt.Sprintf(" - default: %s", opt.defaultValue))
		}

		sb.WriteRune('\n')
	}

	log.SetFlags(0)
	log.Print(sb.String())

	return 0
}

func showVersion() int {
	log.Println(version)
	return 0
}

// parseFlags parses the common daemon flags. If the daemon should exit, it returns true and the exit code.
func parseFlags(name string, conf *conf, args []string) (int, bool) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	flags.Var(&conf.envFile.env, "env", "set environment variables")
	flags.Var(&conf.envFile, "env-file", "read in a file of environment variables")

	var doListConfOpts bool
	flags.BoolVar(&doListConfOpts, "list-conf-opts", false, "list configuration options")
	var doListConf bool
	flags.BoolVar(&doListConf, "list-conf", false, "list configuration")
	var doVersion bool
	flags.BoolVar(&doVersion, "version", false, "show version")

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, true
		} else {
			return 1, true
		}
	}

	if doListConfOpts {
		return listConfOpts(conf), true
	}
	if doListConf {
		return listConf(conf), true
	}
	if doVersion {
		return showVersion(), true
	}

	return 0, false
}

func waitForSignal() {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC
}

type conf struct {
	envFile  envFile
	opts     map[string]*confOpt
	logLevel zerolog.Level
}

// addOption adds an option, whose default value is provided by get and whose value is applied by set.
func (c *conf) addOption(key string, description string, get func() string, set func(string) error) *confOpt {
	co := confOpt{
		env:         c.envFile.env,
		key:         envPrefix + key,
		description: description,

		get: get,
		set: set,
	}

	c.opts[key] = &co
	return &co
}

func (c *conf) addBool(key string, description string, v *bool) *confOpt {
	return c.addOption(key, description, func() string {
		return strconv.FormatBool(*v)
	}, func(value string) error {
		b, err := strconv.ParseBool(value)
		*v = b
		return err
	})
}

func (c *conf) addDuration(key string, description string, v *time.Duration) *confOpt {
	return c.addOption(key, description, func() string {
		return v.String()
	}, func(value string) error {
		d, err := time.ParseDuration(value)
		*v = d
		return err
	})
}

func (c *conf) addInt(key string, description string, v *int) *confOpt {
	return c.addOption(key, description, func() string {
		return strconv.Itoa(*v)
	}, func(value string) error {
		i, err := strconv.ParseInt(value, 10, 32)
		*v = int(i)
		return err
	})
}

// addString adds a string option. An empty value is only accepted, if allowEmpty is true.
func (c *conf) addString(key string, description string, v *string, allowEmpty bool) *confOpt {
	return c.addOption(key, description, func() string {
		return *v
	}, func(value string) error {
		if value == "" && !allowEmpty {
			return errors.New("is empty")
		}
		*v = value
		return nil
	})
}

// addStrings adds an option of comma-separated values.
func (c *conf) addStrings(key string, description string, v *[]string) *confOpt {
	return c.addOption(key, description, func() string {
		return strings.Join(*v, ",")
	}, func(value string) error {
		var values []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				values = append(values, s)
			}
		}
		*v = values
		return nil
	})
}

// apply sets the values of all options, collecting errors per option.
func (c *conf) apply() {
	for _, opt := range c.opts {
		value := opt.value()
		if opt.required && value == "" {
			opt.err = errors.New("is empty")
			continue
		}
		if err := opt.set(value); err != nil {
			opt.err = err
		}
	}
}

// setDefaults sets the default values of all options, before the options are applied.
func (c *conf) setDefaults() {
	for _, opt := range c.opts {
		opt.defaultValue = opt.get()
	}
}

func (c *conf) sortedOpts() []*confOpt {
	opts := make([]*confOpt, 0, len(c.opts))
	for _, opt := range c.opts {
		opts = append(opts, opt)
	}

	slices.SortFunc(opts, func(a *confOpt, b *confOpt) int {
		return strings.Compare(a.key, b.key)
	})

	return opts
}

type confOpt struct {
	env env

	key          string
	description  string
	required     bool
	defaultValue string

	get func() string
	set func(string) error

	err error
}

func (o *confOpt) value() string {
	value := o.env[o.key]
	if value != "" {
		return value
	} else {
		return o.defaultValue
	}
}

type env map[string]string

func (v env) Set(value string) error {
	s := strings.SplitN(value, "=", 2)
	if len(s) != 2 {
		return fmt.Errorf("required format %s", v)
	}
	v[s[0]] = s[1]
	return nil
}

func (v env) String() string {
	return "<key>=<value>"
}

type envFile struct {
	env env
}

func (v envFile) Set(value string) error {
	file, err := os.Open(value)
	if err != nil {
		return err
	}

	defer file.Close()

	scanner := bufio.NewScanner(file)

	i := 0
	for scanner.Scan() {
		i++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := v.env.Set(line); err != nil {
			return fmt.Errorf("wrong format in line %d: required format %s", i, v.env)
		}
	}

	return nil
}

func (v envFile) String() string {
	return "<file>"
}
