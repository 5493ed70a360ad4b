// Command worker chạy parse/batch/import từ dòng lệnh, dùng chung service với HTTP API
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
