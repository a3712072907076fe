package config

import "testing"

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
LogLevel = "info"
UpstreamTimeout = "boom"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	cases := map[string]Duration{
		"":     0,
		"90s":  Duration(90e9),
		"15":   Duration(15e9),
		"0x10": Duration(16e9),
	}
	for raw, want := range cases {
		var d Duration
		if err := d.UnmarshalText([]byte(raw)); err != nil {
			t.Fatalf("UnmarshalText(%q) 返回错误: %v", raw, err)
		}
		if d != want {
			t.Fatalf("UnmarshalText(%q) = %v, want %v", raw, d, want)
		}
	}

	var d Duration
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Fatalf("非法 Duration 应返回错误")
	}
}
