package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/address-resolver/app/bootstrap"
	"github.com/address-resolver/app/config"
	"github.com/address-resolver/internal/gazetteer"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Import dataset JSON/YAML vào collection admin_units (cần MongoDB)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			// load cây từ chính file import để không phụ thuộc dữ liệu cũ trong MongoDB
			override := func(cfg *config.Config) {
				cfg.Gazetteer.Source = "file"
				cfg.Gazetteer.Path = path
			}
			return root.withApp(cmd.Context(), override, func(app *bootstrap.App) error {
				result, err := app.Gazetteer.Import(cmd.Context(), path)
				if err != nil {
					return err
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}, bootstrap.WithMongo())
		},
	}
}

func newSeedMeiliCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-meili",
		Short: "Cấu hình index Meilisearch và nạp lại toàn bộ gazetteer",
		RunE: func(cmd *cobra.Command, args []string) error {
			override := func(cfg *config.Config) { cfg.Meilisearch.Enabled = true }
			return root.withApp(cmd.Context(), override, func(app *bootstrap.App) error {
				if app.Meili == nil {
					return fmt.Errorf("không kết nối được Meilisearch")
				}
				if err := app.Gazetteer.Reindex(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Đã index %d đơn vị (gazetteer %s)\n",
					app.Gazetteer.Tree().Len(), app.Gazetteer.Version())
				return nil
			})
		},
	}
}

func newConvertCmd() *cobra.Command {
	var (
		input   string
		output  string
		version string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Chuyển dữ liệu phẳng (id, parent_id, unit_level) thành dataset phân cấp",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeIn()

			units, err := gazetteer.ReadFlatUnits(in)
			if err != nil {
				return err
			}
			result, err := gazetteer.ConvertFlat(units, version)
			if err != nil {
				return err
			}
			if _, err := gazetteer.Build(result.Dataset); err != nil {
				return fmt.Errorf("dataset sau chuyển đổi không hợp lệ: %w", err)
			}

			out, closeOut, err := openOutput(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()
			if err := gazetteer.WriteDataset(out, result.Dataset, filepath.Ext(output)); err != nil {
				return fmt.Errorf("lỗi ghi dataset: %w", err)
			}

			summary, _ := json.Marshal(result)
			fmt.Fprintln(cmd.ErrOrStderr(), string(summary))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "file JSON dữ liệu phẳng (- = stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "file dataset .json/.yaml (- = stdout, JSON)")
	cmd.Flags().StringVar(&version, "version", "", "version của dataset, rỗng thì tính theo nội dung")
	return cmd
}
