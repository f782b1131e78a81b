// Package npm 实现 CDN 请求在 npm registry 之上的语义：
// 路径解析、版本解析、元数据与 tarball 的读穿透获取以及入口文件推断。
package npm
