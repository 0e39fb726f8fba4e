// internal/service/order/domain/state.go
package domain

// 三个状态轴彼此独立，调用方可以写入任意字符串，下面只是系统自己会用到的取值
const (
	StatusUnprocessed = "Chưa xử lý" // 订单与物流的初始状态
	StatusDelivered   = "Đã giao"    // 已送达，写入 deliveredAt
	StatusCancelled   = "Đã hủy"

	PaymentUnpaid    = "Chưa thanh toán" // 支付初始状态
	PaymentPaid      = "Đã thanh toán"
	PaymentFailed    = "Thanh toán thất bại" // 网关回调失败
	PaymentURLFailed = "Lỗi thanh toán"      // 无法生成支付链接
)

// PaymentCOD 货到付款，不走支付网关
const PaymentCOD = "cod"
