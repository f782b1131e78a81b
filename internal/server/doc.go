// Package server 构建 Fiber 应用：recover 与请求 ID 中间件、首页、/-/ 诊断路由的分流，
// 其余路径全部交给注入的 ProxyHandler。同时提供回源用的共享 http.Client。
package server
