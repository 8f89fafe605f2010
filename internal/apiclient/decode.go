package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decodeList 列表接口的返回形态不统一：裸数组、{data:[...]}、分页的 {data:{data:[...]}}
func decodeList[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []T{}, nil
	}

	if data[0] == '[' {
		items := []T{}
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return items, nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode list envelope: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("list response has neither an array nor a data field")
	}
	return decodeList[T](envelope.Data)
}

// decodeOne 实体接口偶尔包一层 {data:{...}}；有 id 字段时视为实体本身
func decodeOne[T any](data []byte) (T, error) {
	var out T
	data = bytes.TrimSpace(data)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		if _, hasID := fields["id"]; !hasID {
			if inner, ok := fields["data"]; ok && len(inner) > 0 && inner[0] == '{' {
				data = inner
			}
		}
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}
