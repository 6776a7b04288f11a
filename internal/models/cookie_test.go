package models

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestExportedCookie_ToNetworkCookieParam(t *testing.T) {
	tests := []struct {
		name         string
		cookie       ExportedCookie
		wantErr      bool
		wantExpires  proto.TimeSinceEpoch
		wantSameSite proto.NetworkCookieSameSite
	}{
		{
			name: "完整Cookie",
			cookie: ExportedCookie{
				Name: "session", Value: "abc", Domain: ".3ue.com", Path: "/",
				Secure: true, HTTPOnly: true,
				ExpirationDate: 1756700000.75, SameSite: "lax",
			},
			wantExpires:  proto.TimeSinceEpoch(1756700000), // 截断为整数秒
			wantSameSite: proto.NetworkCookieSameSiteLax,
		},
		{
			name: "sameSite为unspecified时不复制",
			cookie: ExportedCookie{
				Name: "token", Value: "x", Domain: ".3ue.com", SameSite: "unspecified",
			},
			wantSameSite: "",
		},
		{
			name: "no_restriction映射为None",
			cookie: ExportedCookie{
				Name: "cf", Value: "y", Domain: ".3ue.com", SameSite: "no_restriction",
			},
			wantSameSite: proto.NetworkCookieSameSiteNone,
		},
		{
			name: "会话Cookie无过期时间",
			cookie: ExportedCookie{
				Name: "tmp", Value: "z", Domain: ".3ue.com",
			},
			wantExpires: 0,
		},
		{
			name:    "缺少name",
			cookie:  ExportedCookie{Value: "v", Domain: ".3ue.com"},
			wantErr: true,
		},
		{
			name:    "缺少domain",
			cookie:  ExportedCookie{Name: "n", Value: "v"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			param, err := tt.cookie.ToNetworkCookieParam()
			if (err != nil) != tt.wantErr {
				t.Fatalf("错误 = %v, 期望出错 = %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if param.Name != tt.cookie.Name || param.Value != tt.cookie.Value {
				t.Errorf("基本字段映射错误: %+v", param)
			}
			if param.Expires != tt.wantExpires {
				t.Errorf("Expires = %v, 期望 %v", param.Expires, tt.wantExpires)
			}
			if param.SameSite != tt.wantSameSite {
				t.Errorf("SameSite = %q, 期望 %q", param.SameSite, tt.wantSameSite)
			}
		})
	}
}

func TestFromNetworkCookie(t *testing.T) {
	c := &proto.NetworkCookie{
		Name: "session", Value: "abc", Domain: ".3ue.com", Path: "/",
		Secure: true, HTTPOnly: true,
		Expires:  proto.TimeSinceEpoch(1756700000),
		SameSite: proto.NetworkCookieSameSiteLax,
	}

	exported := FromNetworkCookie(c)
	if exported.Name != "session" || exported.Domain != ".3ue.com" {
		t.Errorf("基本字段转换错误: %+v", exported)
	}
	if exported.ExpirationDate != 1756700000 {
		t.Errorf("ExpirationDate = %v, 期望 1756700000", exported.ExpirationDate)
	}
	if exported.SameSite != "lax" {
		t.Errorf("SameSite = %q, 期望 lax", exported.SameSite)
	}

	// 转回去应当无损
	param, err := exported.ToNetworkCookieParam()
	if err != nil {
		t.Fatalf("往返转换失败: %v", err)
	}
	if param.SameSite != proto.NetworkCookieSameSiteLax || param.Expires != c.Expires {
		t.Errorf("往返结果不一致: %+v", param)
	}
}
