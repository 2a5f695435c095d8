package error

const (
	// 0 ~ 999: 成功類別
	SUCCESS = 0 // 200 OK

	// 40000 ~ 49999: 用戶請求錯誤 (400 系列)
	BAD_REQUEST_BODY    = 40000 // 400 - 無效的請求體
	BAD_REQUEST_PARAMS  = 40001 // 400 - 無效的請求參數
	BAD_REQUEST_HEADERS = 40002 // 400 - 無效的請求標頭
	TENANT_VALIDATION   = 40010 // 400 - 租戶資料驗證失敗
	TENANT_REQUIRED     = 40011 // 400 - 未指定租戶（沒有子網域）

	// 40100 ~ 40399: 驗證與權限錯誤 (401 403 系列)
	UNAUTHORIZED         = 40100 // 401 - 未授權
	INVALID_SESSION      = 40101 // 401 - 會話失效
	FORBIDDEN            = 40301 // 403 - 禁止訪問
	WRONG_HOST_FOR_ROUTE = 40302 // 403 - 路由不屬於此 host（控制平面/租戶）

	// 40400 ~ 40499: 資源錯誤 (404 系列)
	NOT_FOUND      = 40400 // 404 - 資源未找到
	UNKNOWN_TENANT = 40401 // 404 - 子網域沒有對應的有效租戶

	// 40900 ~ 40999: 衝突 (409 系列)
	CONFLICT          = 40900 // 409 - 資源狀態衝突
	PROVISIONING_BUSY = 40901 // 409 - 租戶正在 provision

	// 50000 ~ 50199: 伺服器內部錯誤 (500 系列)
	INTERNAL_ERROR      = 50000 // 500 - 內部錯誤
	DATABASE_ERROR      = 50001 // 500 - 資料庫錯誤
	SERVICE_UNAVAILABLE = 50002 // 503 - 服務暫停 (維護模式)
	ROUTING_VIOLATION   = 50010 // 500 - 資料路由契約違反

	// 50300 ~ 50399: 租戶資料庫
	PROVISION_UNKNOWN      = 50300 // 503 - provision 失敗（未分類）
	PROVISION_UNREACHABLE  = 50301 // 503 - 無法連線資料庫主機
	PROVISION_PERMISSION   = 50302 // 503 - 權限不足
	PROVISION_DRIVER       = 50303 // 503 - 缺少或不支援的 driver
	PROVISION_SCHEMA       = 50304 // 503 - schema/seed 套用失敗
	TENANT_NOT_PROVISIONED = 50310 // 503 - 租戶資料庫尚未 provision
	CONNECTION_FAILURE     = 50311 // 503 - 已 provision 的租戶資料庫無法連線
)
