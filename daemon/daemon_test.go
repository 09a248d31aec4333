package daemon

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestConf(t *testing.T) {
	assert := assert.New(t)

	type options struct {
		b  bool
		d  time.Duration
		i  int
		s  string
		ss []string
	}

	newTestConf := func(o *options) *conf {
		conf := newConf()
		conf.addBool("B", "bool", &o.b)
		conf.addDuration("D", "duration", &o.d)
		conf.addInt("I", "int", &o.i)
		conf.addString("S", "string", &o.s, false)
		conf.addStrings("SS", "strings", &o.ss)
		return conf
	}

	t.Run("set defaults", func(t *testing.T) {
		o := options{b: true, d: 5 * time.Second, i: 3, s: "x", ss: []string{"a", "b"}}

		conf := newTestConf(&o)
		conf.setDefaults()

		assert.Equal("true", conf.opts["B"].defaultValue)
		assert.Equal("5s", conf.opts["D"].defaultValue)
		assert.Equal("3", conf.opts["I"].defaultValue)
		assert.Equal("x", conf.opts["S"].defaultValue)
		assert.Equal("a,b", conf.opts["SS"].defaultValue)
		assert.Equal("info", conf.opts[optLogLevel].defaultValue)
	})

	t.Run("apply", func(t *testing.T) {
		var o options

		conf := newTestConf(&o)
		conf.setDefaults()

		conf.opts["B"].defaultValue = "true"
		conf.opts["D"].defaultValue = "1m"
		conf.opts["I"].defaultValue = "10"
		conf.opts["S"].defaultValue = "value"
		conf.opts["SS"].defaultValue = "a, b,,c "
		conf.opts[optLogLevel].defaultValue = "debug"

		conf.apply()

		assert.True(o.b)
		assert.Equal(time.Minute, o.d)
		assert.Equal(10, o.i)
		assert.Equal("value", o.s)
		assert.Equal([]string{"a", "b", "c"}, o.ss)
		assert.Equal(zerolog.DebugLevel, conf.logLevel)

		assert.Equal(0, listConfErrors(conf))
	})

	t.Run("env overrides default value", func(t *testing.T) {
		var o options

		conf := newTestConf(&o)
		conf.setDefaults()

		conf.envFile.env.Set("BEY_S=from-env")

		conf.apply()

		assert.Equal("from-env", o.s)
	})

	t.Run("apply when values are invalid", func(t *testing.T) {
		var o options

		conf := newTestConf(&o)
		conf.setDefaults()

		required := conf.addString("R", "required", new(string), true)
		required.required = true

		conf.opts["B"].defaultValue = "invalid-bool"
		conf.opts["D"].defaultValue = "invalid-duration"
		conf.opts["I"].defaultValue = "invalid-int"
		conf.opts["S"].defaultValue = ""
		conf.opts[optLogLevel].defaultValue = "loud"

		conf.apply()

		assert.NotNil(conf.opts["B"].err)
		assert.NotNil(conf.opts["D"].err)
		assert.NotNil(conf.opts["I"].err)
		assert.NotNil(conf.opts["S"].err)
		assert.NotNil(conf.opts["R"].err)
		assert.NotNil(conf.opts[optLogLevel].err)
		assert.Nil(conf.opts["SS"].err)

		buffer := bytes.NewBufferString("")
		log.SetOutput(buffer)

		assert.Equal(1, listConfErrors(conf))

		assert.Contains(buffer.String(), "BEY_B=invalid-bool: ")
		assert.Contains(buffer.String(), "BEY_D=invalid-duration: ")
		assert.Contains(buffer.String(), "BEY_I=invalid-int: ")
		assert.Contains(buffer.String(), "BEY_S: is empty")
		assert.Contains(buffer.String(), "BEY_R: is empty")
		assert.Contains(buffer.String(), "BEY_LOG_LEVEL=loud: ")
	})

	t.Run("list conf opts", func(t *testing.T) {
		o := options{s: "x"}

		conf := newTestConf(&o)
		conf.setDefaults()
		conf.opts["S"].required = true

		buffer := bytes.NewBufferString("")
		log.SetOutput(buffer)

		assert.Equal(0, listConfOpts(conf))

		assert.Contains(buffer.String(), "BEY_S*" + strings.Repeat(" ", 10) + "string - default: x\n")
		assert.Contains(buffer.String(), "BEY_LOG_LEVEL")
	})
}

func TestEnvFile(t *testing.T) {
	assert := assert.New(t)

	f, err := os.CreateTemp("", "env-")
	if err != nil {
		t.Fatalf("failed to create temporary file: %v", err)
	}

	defer f.Close()
	defer os.Remove(f.Name())

	f.WriteString("# comment\n")
	f.WriteString("\n")
	f.WriteString("BEY_A=a\n")
	f.WriteString("BEY_B=b=c\n")

	e := env{}
	assert.NoError(envFile{e}.Set(f.Name()))

	assert.Equal(env{"BEY_A": "a", "BEY_B": "b=c"}, e)
}
