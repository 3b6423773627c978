package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"

	arm "github.com/ZackeryPlovanic/controlsystems2019"
	"github.com/ZackeryPlovanic/controlsystems2019/actuator"
	"github.com/ZackeryPlovanic/controlsystems2019/bus"
	"github.com/ZackeryPlovanic/controlsystems2019/calib"
	"github.com/ZackeryPlovanic/controlsystems2019/components/diag"
	"github.com/ZackeryPlovanic/controlsystems2019/components/joint"
	"github.com/ZackeryPlovanic/controlsystems2019/imu"
)

var (
	configPath = flag.String("config", "", "arm configuration file (default: built-in wiring)")
	blockPath  = flag.String("calibration", "", "persisted calibration block file")
	debug      = flag.Bool("debug", false, "enable debug logging")
)

const (
	servoFreq = 50 * physic.Hertz
	motorFreq = 1500 * physic.Hertz

	// Duty span of the hobby servos: 0.5ms..2.5ms pulses at 50Hz.
	servoMinDuty = 2.5
	servoMaxDuty = 12.5
)

func main() {
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg := calib.Default()
	if *configPath != "" {
		var err error
		cfg, err = calib.Load(*configPath)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}

	if *blockPath != "" {
		block, err := calib.LoadBlock(*blockPath)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		block.Apply(cfg)

		boots, err := calib.BumpBootCount(*blockPath)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		logrus.WithField("count", boots).Info("boot counter")
	}

	if _, err := host.Init(); err != nil {
		fmt.Printf("error initializing host: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Opening I2C bus...")
	raw, err := i2creg.Open(cfg.Bus)
	if err != nil {
		fmt.Printf("error opening i2c bus: %s\n", err)
		os.Exit(1)
	}
	defer raw.Close()
	shared := bus.NewShared(raw, 0)

	servoDev, err := pwmBoard(shared, cfg.ServoBoard, servoFreq)
	if err != nil {
		fmt.Printf("error initializing servo board: %s\n", err)
		os.Exit(1)
	}
	motorDev, err := pwmBoard(shared, cfg.MotorBoard, motorFreq)
	if err != nil {
		fmt.Printf("error initializing motor board: %s\n", err)
		os.Exit(1)
	}

	store := arm.NewStore(arm.AllJoints()...)
	a := arm.New(store)

	fmt.Println("Creating joints...")

	var stoppers []joint.Actuator

	addJoint := func(name arm.Name, mode joint.Mode, axis joint.Axis, act joint.Actuator, sensor imu.Sensor) {
		jc := cfg.Joints[name]
		a.Add(joint.New(joint.Config{
			Name:     name,
			Period:   jc.Period(),
			Priority: jc.Priority,
			Limits:   jc.Limits(),
			Start:    jc.Start,
			Mode:     mode,
			Axis:     axis,
			Alpha:    jc.Alpha,
			P:        jc.P,
			I:        jc.I,
			D:        jc.D,
		}, store, act, sensor))
		stoppers = append(stoppers, act)
	}

	// Base rotation and elbow: open-loop hobby servos.
	addJoint(arm.Rotunda, joint.ModeServo, joint.AxisYaw, actuator.NewServo(servoDev, actuator.ServoConfig{
		Channel: cfg.Joints[arm.Rotunda].Channel,
		MinDuty: servoMinDuty,
		MaxDuty: servoMaxDuty,
	}), nil)
	addJoint(arm.Elbow, joint.ModeServo, joint.AxisYaw, actuator.NewServo(servoDev, actuator.ServoConfig{
		Channel: cfg.Joints[arm.Elbow].Channel,
		MinDuty: servoMinDuty,
		MaxDuty: servoMaxDuty,
	}), nil)

	// Shoulder: closed loop on the BNO055 elevation angle.
	shoulderCfg := cfg.Joints[arm.Shoulder]
	shoulderIMU := imu.NewBNO055(shared, shoulderCfg.SensorAddr)
	if err := shoulderIMU.Boot(); err != nil {
		fmt.Printf("error booting shoulder imu: %s\n", err)
		os.Exit(1)
	}
	addJoint(arm.Shoulder, joint.ModeMotorClosed, joint.AxisPitch, actuator.NewMotor(motorDev, actuator.MotorConfig{
		Channel: shoulderCfg.Channel,
		Dir:     mustPin(shoulderCfg.DirPin),
	}), shoulderIMU)

	// Wrist: two logical joints over the differential gearbox, closed loop
	// on the MPU6050 tilt estimate. Both read the same sensor.
	wristIMU := imu.NewMPU6050(shared, cfg.Joints[arm.WristPitch].SensorAddr)
	if err := wristIMU.Boot(); err != nil {
		fmt.Printf("error booting wrist imu: %s\n", err)
		os.Exit(1)
	}
	pair := actuator.NewDiffPair(
		actuator.NewMotor(motorDev, actuator.MotorConfig{Channel: cfg.WristLeft, Dir: mustPin(cfg.WristLeftD)}),
		actuator.NewMotor(motorDev, actuator.MotorConfig{Channel: cfg.WristRight, Dir: mustPin(cfg.WristRightD)}),
	)
	addJoint(arm.WristPitch, joint.ModeMotorClosed, joint.AxisPitch, pair.Pitch(), wristIMU)
	addJoint(arm.WristRoll, joint.ModeMotorClosed, joint.AxisRoll, pair.Roll(), wristIMU)

	// Claw: open-loop linear actuator, speed percent and phase direction.
	clawCfg := cfg.Joints[arm.Claw]
	addJoint(arm.Claw, joint.ModeMotorOpen, joint.AxisYaw, actuator.NewMotor(motorDev, actuator.MotorConfig{
		Channel: clawCfg.Channel,
		Dir:     mustPin(clawCfg.DirPin),
	}), nil)

	a.Add(diag.New(store, arm.AllJoints(), 0))

	fmt.Println("Booting components...")
	if err := a.Boot(); err != nil {
		fmt.Printf("error while booting: %s\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Catch SIGINT and SIGTERM so the actuators are stopped before exit.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("Caught signal, halting joints...")
		store.HaltAll()

		// Give every task one period to observe the halt, then stop the
		// scheduler itself.
		time.Sleep(500 * time.Millisecond)
		cancel()
	}()

	fmt.Println("Spawning tasks...")
	a.Spawn(ctx)
	a.Wait()

	// The tasks have stopped ticking; make sure nothing is left energized.
	for _, s := range stoppers {
		s.Stop()
	}

	fmt.Println("Done.")
}

func pwmBoard(b *bus.Shared, addr uint16, freq physic.Frequency) (*pca9685.Dev, error) {
	dev, err := pca9685.NewI2C(b, addr)
	if err != nil {
		return nil, err
	}
	if err := dev.SetPwmFreq(freq); err != nil {
		return nil, err
	}
	return dev, nil
}

func mustPin(name string) gpio.PinOut {
	p := gpioreg.ByName(name)
	if p == nil {
		fmt.Printf("gpio pin %q not found\n", name)
		os.Exit(1)
	}
	return p
}
