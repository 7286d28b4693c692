package app

// Command は problemlist バイナリのサブコマンドを表す。
type Command string

const (
	// CommandServe は問題リストAPIを起動する。セッション有効期限が設定されていれば
	// 期限切れセッションの定期削除も同じプロセスで動かす。
	CommandServe Command = "serve"
	// CommandMigrate はユーザー・リスト・セッションのスキーマを最新化して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中のAPIの /health を叩いて終了する。
	// 設定の読み込みを行わないため、distrolessイメージのHEALTHCHECKから呼べる。
	CommandHealthcheck Command = "healthcheck"
)

// knownCommands は引数として受け付けるサブコマンド。
var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 残りの引数は無視し、引数なしや未知の値はCommandServeとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
