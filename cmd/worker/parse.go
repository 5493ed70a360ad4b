package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/address-resolver/app/bootstrap"
	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/requests"
)

func newParseCmd(root *rootOptions) *cobra.Command {
	var (
		debug  bool
		levels int
	)

	cmd := &cobra.Command{
		Use:   "parse <address>",
		Short: "Parse một địa chỉ và in kết quả JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := strings.Join(args, " ")
			override := func(cfg *config.Config) {
				// --debug bật trace của resolver ở mức debug
				if debug {
					cfg.Parser.Debug = true
					root.logLevel = "debug"
				}
			}

			return root.withApp(cmd.Context(), override, func(app *bootstrap.App) error {
				opts := requests.ParseOptions{Levels: levels, UseCache: !debug, Debug: debug}
				result, _, err := app.Address.ParseAddress(cmd.Context(), address, opts)
				if err != nil {
					return err
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			})
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "in điểm thành phần và cách tách địa chỉ")
	cmd.Flags().IntVar(&levels, "levels", 0, "số cấp trả về tính từ cấp 1 (0 = tất cả)")
	return cmd
}
