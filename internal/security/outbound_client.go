package security

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// NewOutboundClient はIDプロバイダ等の外部APIを呼び出すためのHTTPクライアントを生成する。
// safeurlによりhttpsの443番ポート以外への接続と、
// プライベートIP・ループバック・リンクローカル・メタデータIPへの接続がブロックされる。
// 検証はDNS解決後のIPアドレスに対して行われるため、DNS再バインディングにも有効。
func NewOutboundClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(443).
		Build()

	return safeurl.Client(config).Client
}
