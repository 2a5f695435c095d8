package path

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// RootPath 專案根目錄（utils/path 往上兩層）
func RootPath() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("❌ 無法取得 caller 位置")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
}

// Resolve 相對路徑以 base 為基準展開；絕對路徑與空字串原樣回傳
func Resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Exists 路徑是否存在；權限等其他錯誤會回傳
func Exists(p string) (bool, error) {
	_, err := os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
