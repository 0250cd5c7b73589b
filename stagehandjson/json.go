package stagehandjson

import (
	"runtime"

	"github.com/bytedance/sonic"
	jsoniter "github.com/json-iterator/go"
)

const UseSonic = runtime.GOARCH == "amd64" && runtime.GOOS == "linux"

func Unmarshal(data []byte, v any) error {
	if UseSonic {
		return sonic.Unmarshal(data, v)
	} else {
		return jsoniter.Unmarshal(data, v)
	}
}

func Marshal(v any) ([]byte, error) {
	if UseSonic {
		return sonic.Marshal(v)
	} else {
		return jsoniter.Marshal(v)
	}
}
