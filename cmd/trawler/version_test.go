package main

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/aretw0/trawler"
	"github.com/stretchr/testify/assert"
)

func TestPrintVersion_BuildInfo(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out, &debug.BuildInfo{
		GoVersion: "go1.25.4",
		Main:      debug.Module{Path: "github.com/aretw0/trawler", Version: "v0.3.0"},
		Settings:  []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
	})

	assert.Equal(t, "trawler version "+trawler.Version+"\n"+
		"module github.com/aretw0/trawler v0.3.0\n"+
		"revision abc123\n"+
		"built with go1.25.4\n", out.String())
}

func TestPrintVersion_DevelBuild(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	assert.Equal(t, "trawler version "+trawler.Version+"\n", out.String())

	out.Reset()
	printVersion(&out, nil)
	assert.Equal(t, "trawler version "+trawler.Version+"\n", out.String())
}
