// Package external bọc các thư viện parse địa chỉ bên ngoài (libpostal).
// Build với -tags libpostal để bật; mặc định Parse trả về ErrUnavailable.
package external

import "errors"

// ErrUnavailable binary không được build kèm libpostal
var ErrUnavailable = errors.New("libpostal không khả dụng trong bản build này")

// Components các thành phần libpostal nhận diện được
type Components struct {
	House    string  `json:"house,omitempty"`
	Road     string  `json:"road,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Level    string  `json:"level,omitempty"`
	Ward     string  `json:"ward,omitempty"`
	City     string  `json:"city,omitempty"`
	Province string  `json:"province,omitempty"`
	Coverage float64 `json:"coverage"` // tỉ lệ token được gán nhãn
}
