// zkgate 零知识权限访问系统命令行工具
package main

func main() {
	Execute()
}
