// Package cache 提供进程内的读穿透缓存池。
//
// 每个 Pool 以字符串为键、带固定容量与写入时 TTL，后端可在 expirable LRU、
// ristretto 与 bigcache 之间切换。Manager 组合 metadata 与 package 两个池，
// 上层 npm 客户端只依赖 Manager 暴露的按包名/版本存取方法。
// 缓存内容不落盘，进程重启后全部失效。
package cache
