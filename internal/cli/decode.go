package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yairfalse/etwparse/pkg/capture"
	"github.com/yairfalse/etwparse/pkg/schema"
	"github.com/yairfalse/etwparse/pkg/ser"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <capture.json>",
	Short: "Decode a capture file and print the records as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		opts := ser.Options{
			IncludeSchema:     viper.GetBool("decode.include-schema"),
			IncludeHeader:     viper.GetBool("decode.include-header"),
			FailUnimplemented: viper.GetBool("decode.fail-unimplemented"),
		}
		return runDecode(args[0], opts, logger, cmd.OutOrStdout())
	},
}

func init() {
	flags := decodeCmd.Flags()
	flags.Bool("include-schema", true, "include provider, task and opcode names")
	flags.Bool("include-header", true, "include the record header block")
	flags.Bool("fail-unimplemented", false, "fail on fields without a decoding strategy instead of omitting them")

	viper.BindPFlag("decode.include-schema", flags.Lookup("include-schema"))
	viper.BindPFlag("decode.include-header", flags.Lookup("include-header"))
	viper.BindPFlag("decode.fail-unimplemented", flags.Lookup("fail-unimplemented"))
}

func runDecode(path string, opts ser.Options, logger *zap.Logger, out io.Writer) error {
	c, err := capture.LoadFile(path)
	if err != nil {
		return err
	}
	logger.Info("loaded capture", zap.String("path", path), zap.Int("records", len(c.Records)))

	locator := schema.NewLocator(c, logger)
	decoded := make([]map[string]any, 0, len(c.Records))
	for i, record := range c.Records {
		sc, err := locator.EventSchema(record)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		sink := ser.NewMapSink()
		if err := ser.New(record, sc, opts, logger).Serialize(sink); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		decoded = append(decoded, sink.Result())
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(decoded)
}
