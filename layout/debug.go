package layout

import (
	"encoding/json"
	"io"
	"os"
)

// WriteDebugJSON 将渲染记录（坐标表、字段排版决策、被跳过的字段）输出为 JSON，便于调试模板。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeDebug(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeDebug 以缩进 JSON 写出渲染记录。
func EncodeDebug(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
