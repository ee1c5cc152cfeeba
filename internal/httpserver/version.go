package httpserver

// Version 随发布流程更新，/health 对外上报
const Version = "1.0.0"
