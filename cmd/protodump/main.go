// Command protodump decodes a protobuf payload with a .proto schema and prints
// it as text format, JSON or re-encoded binary.
//
//	protodump -proto_path protos -schema shop/order.proto -message shop.Order order.bin
//	protodump -config protodump.toml -format json - < order.bin
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anirudhraja/protorun"
	"github.com/anirudhraja/protorun/codec"
	"github.com/anirudhraja/protorun/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "protodump:", err)
		}
		os.Exit(2)
	}
}

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("protodump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		flagCfg    = defaultConfig()
		configPath = fs.String("config", "", "TOML config file")
		protoDirs  listFlag
		schemas    listFlag
		list       = fs.Bool("list", false, "list loaded message types and exit")
	)
	fs.Var(&protoDirs, "proto_path", "comma separated proto import directories")
	fs.Var(&schemas, "schema", "comma separated .proto files or directories to load")
	fs.StringVar(&flagCfg.message, "message", "", "fully qualified message type")
	fs.StringVar(&flagCfg.input, "input", flagCfg.input, "input encoding: binary or json")
	fs.StringVar(&flagCfg.format, "format", flagCfg.format, "output format: text, json or binary")
	fs.BoolVar(&flagCfg.deterministic, "deterministic", false, "sort map entries by key")
	fs.BoolVar(&flagCfg.protoNames, "proto_names", false, "use .proto field names in JSON output")
	fs.BoolVar(&flagCfg.enumsAsInts, "enums_as_ints", false, "write enum numbers in JSON output")
	fs.StringVar(&flagCfg.logLevel, "log_level", flagCfg.logLevel, "log level")
	fs.StringVar(&flagCfg.logFormat, "log_format", flagCfg.logFormat, "log format: console or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath, cfg); err != nil {
			return err
		}
	}
	// Explicit flags win over the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "proto_path":
			cfg.protoDirs = protoDirs
		case "schema":
			cfg.schema = schemas
		case "message":
			cfg.message = flagCfg.message
		case "input":
			cfg.input = flagCfg.input
		case "format":
			cfg.format = flagCfg.format
		case "deterministic":
			cfg.deterministic = flagCfg.deterministic
		case "proto_names":
			cfg.protoNames = flagCfg.protoNames
		case "enums_as_ints":
			cfg.enumsAsInts = flagCfg.enumsAsInts
		case "log_level":
			cfg.logLevel = flagCfg.logLevel
		case "log_format":
			cfg.logFormat = flagCfg.logFormat
		}
	})
	if err := cfg.validate(); err != nil {
		return err
	}

	logger, err := logging.NewWriter(stderr, cfg.logLevel, cfg.logFormat)
	if err != nil {
		return err
	}

	proto := protorun.New(cfg.protoDirs...)
	proto.SetLogger(logger)
	proto.SetConfig(codec.Config{
		Deterministic:     cfg.deterministic,
		JSONUseProtoNames: cfg.protoNames,
		JSONEnumsAsInts:   cfg.enumsAsInts,
	})
	for _, s := range cfg.schema {
		// Paths that do not exist as given are looked up in the proto dirs.
		load := proto.LoadSchemaFromFile
		if _, err := os.Stat(s); err == nil {
			load = proto.LoadSchema
		}
		if err := load(s); err != nil {
			return fmt.Errorf("load %s: %w", s, err)
		}
	}
	logger.Debug().Int("messages", len(proto.ListMessages())).Strs("schema", cfg.schema).Msg("schemas loaded")

	if *list {
		for _, name := range proto.ListMessages() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	if cfg.message == "" {
		return errors.New("no message type given (-message)")
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("expected one input file, got %d", fs.NArg())
	}
	data, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		return err
	}
	return dump(proto, cfg, data, stdout)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func dump(proto *protorun.Protolite, cfg config, data []byte, w io.Writer) error {
	parse := proto.Parse
	if cfg.input == "json" {
		parse = proto.ParseJSON
	}
	msg, err := parse(data, cfg.message)
	if err != nil {
		return fmt.Errorf("decode %s: %w", cfg.message, err)
	}

	switch cfg.format {
	case "json":
		out, err := proto.MarshalJSON(msg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", out)
		return err
	case "binary":
		out, err := proto.Marshal(msg)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	out, err := proto.MarshalText(msg)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
