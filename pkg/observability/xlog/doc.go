// Package xlog 基于 log/slog 的结构化日志库。
//
// # 核心功能
//
//   - Builder 模式配置（输出目标、级别、格式、轮转）
//   - 动态级别调整（配置热更新时直接生效）
//   - 领域属性构造函数（worker、连接 ID、对端地址、HTTP 字段）
//   - 全局 Logger 便利函数
//
// # 创建 Logger
//
// Builder 采用 first-error-wins：遇到第一个配置错误后，后续 Set 操作仍可链式调用，
// 但 [Builder.Build] 返回该错误。Builder 为一次性使用。
//
//	logger, cleanup, err := xlog.New().
//	    SetLevelString("debug").
//	    SetFormat("json").
//	    SetRotation("/var/log/xserve/xserve.log").
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// # 全局 Logger
//
// 适用于 main 包和小工具，库代码推荐通过 Option 注入 Logger。
//
//   - [Default]: 获取全局 Logger（惰性初始化：stderr、Info 级别、text 格式）
//   - [SetDefault]: 替换全局 Logger（nil 会被忽略）
//   - [Discard]: 丢弃所有输出的 Logger，测试中常用
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)。
// Level 实现 encoding.TextUnmarshaler，可直接出现在配置结构体中。
//
// # 便捷属性
//
// [Err]、[Duration]、[Component]、[Pool]、[Worker]、[ConnID]、[Remote]、
// [Method]、[Path]、[StatusCode]、[Panic]。
package xlog
