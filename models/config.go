// Package models defines the shared record and configuration types for the
// lead normalization pipeline.
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable of the pipeline. It is loaded once, never
// mutated, and passed explicitly into the reconciler, extractors and
// summarizer so parallel or test invocations stay isolated.
type Config struct {
	// ColumnKeywords maps each canonical output column to the header
	// keywords that identify it in arbitrary exports. Matching is
	// case-insensitive substring containment; the first header matching any
	// keyword wins for that column.
	ColumnKeywords map[string][]string `yaml:"column_keywords"`

	// ClientSenders are the transcript sender labels attributed to the lead.
	// Any other sender is rendered as the bot.
	ClientSenders []string `yaml:"client_senders"`

	// IncomeKeywords gate income extraction: a client line must contain one
	// of these words before any number in it is trusted as a monthly income.
	IncomeKeywords []string `yaml:"income_keywords"`

	// MaxConvChars caps the rendered conversation; the tail is cut so the
	// opening context survives.
	MaxConvChars int `yaml:"max_conv_chars"`

	Ollama OllamaConfig `yaml:"ollama"`
}

// OllamaConfig describes the enrichment endpoint. Timeouts are split the way
// the upstream export tool split them: a short connect budget and a long
// generation budget.
type OllamaConfig struct {
	URL               string  `yaml:"url"`
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	NumPredict        int     `yaml:"num_predict"`
	KeepAlive         string  `yaml:"keep_alive"`
	Stop              string  `yaml:"stop"`
	ConnectTimeoutSec int     `yaml:"connect_timeout_sec"`
	ReadTimeoutSec    int     `yaml:"read_timeout_sec"`
}

// DefaultConfig returns the compiled-in configuration. Values mirror the
// conventions of the Chilean CRM exports this tool was written for.
func DefaultConfig() Config {
	return Config{
		ColumnKeywords: map[string][]string{
			"nombre":      {"nombre", "nombres", "cliente", "prospecto", "name", "full name"},
			"apellido":    {"apellido", "apellidos", "surname", "last name"},
			"email":       {"email", "correo", "mail", "e-mail", "correo electronico"},
			"telefono":    {"telefono", "fono", "celular", "movil", "mobile", "phone", "cel"},
			"renta":       {"renta", "sueldo", "ingreso", "salary", "income", "liquido"},
			"proyecto":    {"proyecto", "obra", "condominio", "project"},
			"observacion": {"observacion", "nota", "comentario", "detalle"},
		},
		ClientSenders:  []string{"user", "usuario", "cliente", "lead"},
		IncomeKeywords: []string{"renta", "sueldo", "gano", "ingreso", "líquido", "liquido"},
		MaxConvChars:   4500,
		Ollama: OllamaConfig{
			URL:               "http://127.0.0.1:11434",
			Model:             "llama3.2:latest",
			Temperature:       0.2,
			NumPredict:        280,
			KeepAlive:         "20m",
			Stop:              "FIN",
			ConnectTimeoutSec: 10,
			ReadTimeoutSec:    300,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path means
// defaults only; a named file that cannot be read or parsed is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}
