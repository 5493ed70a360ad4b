package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/address-resolver/app/bootstrap"
	"github.com/address-resolver/app/config"
	"github.com/address-resolver/app/requests"
)

func newBatchCmd(root *rootOptions) *cobra.Command {
	var (
		input   string
		output  string
		workers int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Parse mỗi dòng của file input, ghi NDJSON theo đúng thứ tự",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeIn()

			addresses, err := readLines(in)
			if err != nil {
				return fmt.Errorf("lỗi đọc input: %w", err)
			}

			out, closeOut, err := openOutput(output, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()

			override := func(cfg *config.Config) {
				if workers > 0 {
					cfg.Batch.Workers = workers
				}
			}
			return root.withApp(cmd.Context(), override, func(app *bootstrap.App) error {
				w := bufio.NewWriter(out)
				opts := requests.ParseOptions{UseCache: !noCache}
				if err := app.Address.ProcessBatch(cmd.Context(), addresses, w, opts); err != nil {
					return err
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "file địa chỉ, mỗi dòng một địa chỉ (- = stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "file NDJSON kết quả (- = stdout)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "số worker song song (0 = theo config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "không đọc/ghi cache")
	return cmd
}

// readLines đọc các dòng không rỗng, bỏ BOM và khoảng trắng hai đầu
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("không mở được input: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("không tạo được output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
